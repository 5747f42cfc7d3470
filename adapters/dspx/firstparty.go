package dspx

import (
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/mssola/user_agent"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

const (
	deviceTypeMobile  = "mobile"
	deviceTypeTablet  = "tablet"
	deviceTypeDesktop = "desktop"
)

func supplyChain(source *openrtb2.Source) *openrtb2.SupplyChain {
	if source == nil {
		return nil
	}
	if source.SChain != nil {
		return source.SChain
	}
	if len(source.Ext) == 0 {
		return nil
	}
	var extSource openrtb_ext.ExtSource
	if err := jsonutil.Unmarshal(source.Ext, &extSource); err != nil {
		return nil
	}
	return extSource.SChain
}

// serializeSupplyChain renders ver,complete!asi,sid,hp,rid,name,domain!... with every
// node field escaped on its own.
func serializeSupplyChain(schain *openrtb2.SupplyChain) string {
	if schain == nil || schain.Ver == "" || len(schain.Nodes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(schain.Ver)
	sb.WriteByte(',')
	sb.WriteString(strconv.Itoa(int(schain.Complete)))
	for _, node := range schain.Nodes {
		hp := ""
		if node.HP != nil {
			hp = strconv.Itoa(int(*node.HP))
		}
		fields := []string{node.ASI, node.SID, hp, node.RID, node.Name, node.Domain}
		for i := range fields {
			fields[i] = encodeURIComponent(fields[i])
		}
		sb.WriteByte('!')
		sb.WriteString(strings.Join(fields, ","))
	}
	return sb.String()
}

func contentCategories(request *openrtb2.BidRequest) []string {
	var cats []string
	switch {
	case request.Site != nil && request.Site.Content != nil:
		cats = request.Site.Content.Cat
	case request.App != nil && request.App.Content != nil:
		cats = request.App.Content.Cat
	}
	return nonEmpty(cats)
}

func iabContent(request *openrtb2.BidRequest) string {
	cats := contentCategories(request)
	if len(cats) == 0 {
		return ""
	}
	return "cat:" + strings.Join(cats, "|")
}

// blockedCategories prefers request.bcat. The params value is only a fallback.
func blockedCategories(request *openrtb2.BidRequest, paramsBCat string) string {
	if bcat := nonEmpty(request.BCat); len(bcat) > 0 {
		return strings.Join(bcat, ",")
	}
	return paramsBCat
}

func pageCategories(request *openrtb2.BidRequest) string {
	if request.Site == nil {
		return ""
	}
	return strings.Join(nonEmpty(request.Site.PageCat), ",")
}

// deviceType returns the params value, else the OpenRTB device type, else a guess from
// the user agent.
func deviceType(device *openrtb2.Device, paramsDVT string) string {
	if paramsDVT != "" {
		return paramsDVT
	}
	if device == nil {
		return ""
	}

	switch device.DeviceType {
	case 1, 4:
		return deviceTypeMobile
	case 5:
		return deviceTypeTablet
	case 2:
		return deviceTypeDesktop
	}

	if device.UA == "" {
		return ""
	}
	ua := user_agent.New(device.UA)
	if ua.Bot() {
		return ""
	}
	if ua.Platform() == "iPad" {
		return deviceTypeTablet
	}
	if ua.Mobile() {
		return deviceTypeMobile
	}
	if strings.Contains(ua.OS(), "Android") {
		return deviceTypeTablet
	}
	return deviceTypeDesktop
}

// topics holds the Google Topics taxonomy of one user.data entry.
type topics struct {
	taxonomy string
	class    string
	segments []string
}

// googleTopics returns the first user.data entry with a segtax and at least two usable
// segment ids.
func googleTopics(user *openrtb2.User) (topics, bool) {
	if user == nil {
		return topics{}, false
	}

	for _, data := range user.Data {
		taxonomy := extScalar(data.Ext, "segtax")
		if taxonomy == "" {
			continue
		}

		segments := make([]string, 0, len(data.Segment))
		for _, segment := range data.Segment {
			if segment.ID != "" {
				segments = append(segments, segment.ID)
			}
		}
		if len(segments) < 2 {
			continue
		}

		return topics{
			taxonomy: taxonomy,
			class:    extScalar(data.Ext, "segclass"),
			segments: segments,
		}, true
	}
	return topics{}, false
}

// extScalar reads a string or number at key, rendered as a string.
func extScalar(ext []byte, key string) string {
	if len(ext) == 0 {
		return ""
	}
	value, dataType, _, err := jsonparser.Get(ext, key)
	if err != nil {
		return ""
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Number:
		return string(value)
	}
	return ""
}

func referrer(request *openrtb2.BidRequest) string {
	if request.Site != nil {
		if request.Site.Page != "" {
			return request.Site.Page
		}
		return request.Site.Ref
	}
	if request.App != nil {
		return request.App.Bundle
	}
	return ""
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
