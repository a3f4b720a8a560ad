package clip

// headlessBackend is a no-op clipboard backend for environments without a
// display server (headless Linux servers, containers, etc.).
// It always reads empty and silently discards writes.
type headlessBackend struct{}

// Headless returns the no-op backend.
func Headless() Backend { return headlessBackend{} }

func (headlessBackend) Name() string              { return "headless (no-op)" }
func (headlessBackend) ReadText() (string, error) { return "", nil }
func (headlessBackend) WriteText(_ string) error  { return nil }
func (headlessBackend) Close()                    {}
