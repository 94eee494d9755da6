package common

var (
	// Version is set at build time with -ldflags "-X github.com/ruteri/tinycert-go/common.Version=..."
	Version = "dev"

	PackageName = "github.com/ruteri/tinycert-go"
)
