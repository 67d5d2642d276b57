package port

type Walker interface {
	Walk(root string) (WalkResult, error)
}

type WalkResult struct {
	Paths    []string
	Warnings []string
}

type FileReader interface {
	ReadFile(path string) ([]byte, error)
}
