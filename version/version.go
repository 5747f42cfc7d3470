package version

// Ver holds the version derived from the latest git tag
// Set manually at build time using:
//
//	go build -ldflags "-X github.com/dspxtv/prebid-dspx/version.Ver=`git describe --tags | sed 's/^v//`"
var Ver string

// Rev holds binary revision string
// Set manually at build time using:
//
//	go build -ldflags "-X github.com/dspxtv/prebid-dspx/version.Rev=`git rev-parse --short HEAD`"
var Rev string

// VerUnknown is the version used if Ver has not been set by ldflags.
const VerUnknown = "unknown"

// OrUnknown returns Ver, or VerUnknown when it was not set at build time.
func OrUnknown() string {
	if Ver == "" {
		return VerUnknown
	}
	return Ver
}
