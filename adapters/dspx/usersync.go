package dspx

import (
	"github.com/buger/jsonparser"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/usersync"
)

// UserSyncs collects the userSync urls dspx returns with its bids. At most one iframe is
// synced; every image url is kept, in order.
func (a *adapter) UserSyncs(opts usersync.Options, responses []*adapters.ResponseData, consent usersync.Consent) []usersync.Sync {
	syncs := make([]usersync.Sync, 0)
	syncTypes := opts.ForOptions()
	if len(syncTypes) == 0 {
		return syncs
	}

	var iframeURLs, imageURLs []string
	for _, response := range responses {
		if response == nil || len(response.Body) == 0 {
			continue
		}
		iframeURLs = append(iframeURLs, syncURLs(response.Body, "iframeUrl")...)
		imageURLs = append(imageURLs, syncURLs(response.Body, "imageUrl")...)
	}

	for _, syncType := range syncTypes {
		switch syncType {
		case usersync.SyncTypeIFrame:
			if len(iframeURLs) > 0 {
				syncs = append(syncs, usersync.Sync{
					URL:  usersync.AppendConsent(iframeURLs[0], consent),
					Type: usersync.SyncTypeIFrame,
				})
			}
		case usersync.SyncTypeImage:
			for _, imageURL := range imageURLs {
				syncs = append(syncs, usersync.Sync{
					URL:  usersync.AppendConsent(imageURL, consent),
					Type: usersync.SyncTypeImage,
				})
			}
		}
	}
	return syncs
}

// syncURLs reads userSync.<key>, which dspx sends either as a string or as a list.
func syncURLs(body []byte, key string) []string {
	value, dataType, _, err := jsonparser.Get(body, "userSync", key)
	if err != nil {
		return nil
	}

	var urls []string
	switch dataType {
	case jsonparser.String:
		if s, err := jsonparser.ParseString(value); err == nil && s != "" {
			urls = append(urls, s)
		}
	case jsonparser.Array:
		jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
			if dt != jsonparser.String {
				return
			}
			if s, err := jsonparser.ParseString(v); err == nil && s != "" {
				urls = append(urls, s)
			}
		})
	}
	return urls
}
