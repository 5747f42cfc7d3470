package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/dspxtv/prebid-dspx/openrtb_ext"
)

// BidderInfos contains a mapping of bidder name to bidder info.
type BidderInfos map[string]BidderInfo

// BidderInfo specifies all configuration for a bidder except for enabled status, endpoint, and extra information.
type BidderInfo struct {
	Enabled bool `yaml:"-"` // copied from adapter config for convenience.
	// Endpoint and ExtraAdapterInfo are the built-in defaults; app config wins when it sets them.
	Endpoint         string            `yaml:"endpoint"`
	ExtraAdapterInfo string            `yaml:"extra_info"`
	Maintainer       *MaintainerInfo   `yaml:"maintainer"`
	Capabilities     *CapabilitiesInfo `yaml:"capabilities"`
	GVLVendorID      uint16            `yaml:"gvlVendorID"`
	Syncer           *Syncer           `yaml:"userSync"`
}

// MaintainerInfo specifies the support email address for a bidder.
type MaintainerInfo struct {
	Email string `yaml:"email"`
}

// CapabilitiesInfo specifies the supported platforms for a bidder.
type CapabilitiesInfo struct {
	App  *PlatformInfo `yaml:"app"`
	Site *PlatformInfo `yaml:"site"`
}

// PlatformInfo specifies the supported media types for a bidder.
type PlatformInfo struct {
	MediaTypes []openrtb_ext.BidType `yaml:"mediaTypes"`
}

// Syncer specifies the user sync settings for a bidder. dspx hands out its sync urls in bid
// responses, so only the cookie key and the supported sync types live here.
type Syncer struct {
	// Key is used as the record key for the user sync cookie.
	Key string `yaml:"key"`

	// Supports lists the sync types the bidder can serve: iframe, image or both.
	Supports []string `yaml:"supports"`
}

// SupportsType reports whether the bidder declares support for syncType.
func (s *Syncer) SupportsType(syncType string) bool {
	if s == nil {
		return false
	}
	for _, supported := range s.Supports {
		if strings.EqualFold(supported, syncType) {
			return true
		}
	}
	return false
}

// LoadBidderInfoFromDisk parses all static/bidder-info/{bidder}.yaml files from the file system.
func LoadBidderInfoFromDisk(path string, adapterConfigs map[string]Adapter, bidders []string) (BidderInfos, error) {
	reader := infoReaderFromDisk{path}
	return loadBidderInfo(reader, adapterConfigs, bidders)
}

func loadBidderInfo(r infoReader, adapterConfigs map[string]Adapter, bidders []string) (BidderInfos, error) {
	infos := BidderInfos{}

	for _, bidder := range bidders {
		data, err := r.Read(bidder)
		if err != nil {
			return nil, err
		}

		info := BidderInfo{}
		if err := yaml.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("error parsing yaml for bidder %s: %v", bidder, err)
		}

		info.Enabled = isEnabledByConfig(adapterConfigs, bidder)
		infos[bidder] = info
	}

	return infos, nil
}

func isEnabledByConfig(adapterConfigs map[string]Adapter, bidderName string) bool {
	a, ok := adapterConfigs[strings.ToLower(bidderName)]
	return ok && !a.Disabled
}

type infoReader interface {
	Read(bidder string) ([]byte, error)
}

type infoReaderFromDisk struct {
	path string
}

func (r infoReaderFromDisk) Read(bidder string) ([]byte, error) {
	path := fmt.Sprintf("%v/%v.yaml", r.path, bidder)
	return os.ReadFile(path)
}

// ApplyDefaults fills an adapter config from bidder info where the app config left a gap.
func (info BidderInfo) ApplyDefaults(adapter Adapter) Adapter {
	if adapter.Endpoint == "" {
		adapter.Endpoint = info.Endpoint
	}
	if adapter.ExtraAdapterInfo == "" {
		adapter.ExtraAdapterInfo = info.ExtraAdapterInfo
	}
	return adapter
}

// ToGVLVendorIDMap transforms a BidderInfos object to a map of bidder names to GVL id. Disabled
// bidders are omitted from the result.
func (infos BidderInfos) ToGVLVendorIDMap() map[openrtb_ext.BidderName]uint16 {
	m := make(map[openrtb_ext.BidderName]uint16, len(infos))
	for name, info := range infos {
		if info.Enabled && info.GVLVendorID != 0 {
			m[openrtb_ext.BidderName(name)] = info.GVLVendorID
		}
	}
	return m
}
