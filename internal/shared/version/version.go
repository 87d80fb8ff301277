package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/mnott/pynalyze/internal/shared/version.Version=v1.2.3"
var Version = "dev"
