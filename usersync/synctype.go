package usersync

// SyncType specifies the mechanism used to perform a user sync.
type SyncType string

const (
	// SyncTypeIFrame specifies the user sync is to be performed within an HTML iframe
	// and to expect the server to return a valid HTML page with an embedded script.
	SyncTypeIFrame SyncType = "iframe"

	// SyncTypeImage specifies the user sync is to be performed within an HTML image
	// pixel. The host calls this a redirect sync.
	SyncTypeImage SyncType = "image"
)

// Options says which sync mechanisms the publisher page permits.
type Options struct {
	IFrameEnabled bool `json:"iframeEnabled,omitempty"`
	PixelEnabled  bool `json:"pixelEnabled,omitempty"`
}

// ForOptions returns the sync types allowed by the options, iframe first.
func (o Options) ForOptions() []SyncType {
	var syncTypes []SyncType

	if o.IFrameEnabled {
		syncTypes = append(syncTypes, SyncTypeIFrame)
	}

	if o.PixelEnabled {
		syncTypes = append(syncTypes, SyncTypeImage)
	}

	return syncTypes
}
