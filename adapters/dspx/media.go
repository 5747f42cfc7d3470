package dspx

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/prebid/openrtb/v20/adcom1"
	"github.com/prebid/openrtb/v20/openrtb2"
)

const (
	formatAuto   = "auto"
	formatBanner = "banner"
	formatVideo  = "video"

	videoContextInstream  = "instream"
	videoContextOutstream = "outstream"

	defaultVastFormat = "vast2"
)

type size struct {
	w, h int64
}

func (s size) String() string {
	return strconv.FormatInt(s.w, 10) + "x" + strconv.FormatInt(s.h, 10)
}

func bannerSizes(banner *openrtb2.Banner) []size {
	if banner == nil {
		return nil
	}
	sizes := make([]size, 0, len(banner.Format))
	for _, format := range banner.Format {
		if format.W > 0 && format.H > 0 {
			sizes = append(sizes, size{format.W, format.H})
		}
	}
	if len(sizes) == 0 && banner.W != nil && banner.H != nil && *banner.W > 0 && *banner.H > 0 {
		sizes = append(sizes, size{*banner.W, *banner.H})
	}
	return sizes
}

func videoSize(video *openrtb2.Video) (size, bool) {
	if video == nil || video.W == nil || video.H == nil || *video.W <= 0 || *video.H <= 0 {
		return size{}, false
	}
	return size{*video.W, *video.H}, true
}

// requestFormat is the _f discriminator. A video without a player size cannot be
// matched strictly, so it falls back to auto.
func requestFormat(imp *openrtb2.Imp) string {
	_, hasVideoSize := videoSize(imp.Video)
	switch {
	case imp.Banner != nil && imp.Video != nil:
		return formatAuto
	case imp.Banner != nil:
		return formatBanner
	case imp.Video != nil && hasVideoSize:
		return formatVideo
	}
	return formatAuto
}

// primarySize is sent as srw/srh: the video player first, then the banner sizes.
func primarySize(imp *openrtb2.Imp) (size, bool) {
	if s, ok := videoSize(imp.Video); ok {
		return s, true
	}
	if sizes := bannerSizes(imp.Banner); len(sizes) > 0 {
		return sizes[0], true
	}
	return size{}, false
}

func joinSizes(sizes []size) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// videoContext uses plcmt when set and the deprecated placement otherwise. Video
// declaring neither is treated as instream.
func videoContext(video *openrtb2.Video) string {
	if video == nil {
		return ""
	}
	if video.Plcmt != 0 {
		if video.Plcmt == adcom1.VideoPlcmtInstream {
			return videoContextInstream
		}
		return videoContextOutstream
	}
	if video.Placement != 0 && video.Placement != 1 {
		return videoContextOutstream
	}
	return videoContextInstream
}

func isOutstream(imp *openrtb2.Imp) bool {
	return imp != nil && imp.Video != nil && videoContext(imp.Video) == videoContextOutstream
}

// videoPlayerParams is the subset of imp.video forwarded as vpl[...], in the order dspx
// expects.
type videoPlayerParams struct {
	MIMEs          []string                      `json:"mimes,omitempty"`
	MinDuration    int64                         `json:"minduration,omitempty"`
	MaxDuration    int64                         `json:"maxduration,omitempty"`
	Protocols      []adcom1.MediaCreativeSubtype `json:"protocols,omitempty"`
	StartDelay     *adcom1.StartDelay            `json:"startdelay,omitempty"`
	Placement      adcom1.VideoPlacementSubtype  `json:"placement,omitempty"`
	Plcmt          adcom1.VideoPlcmtSubtype      `json:"plcmt,omitempty"`
	Skip           *int8                         `json:"skip,omitempty"`
	SkipAfter      int64                         `json:"skipafter,omitempty"`
	PlaybackMethod []adcom1.PlaybackMethod       `json:"playbackmethod,omitempty"`
	API            []adcom1.APIFramework         `json:"api,omitempty"`
}

func appendVideoPlayerParams(q *queryBuilder, video *openrtb2.Video) {
	params := videoPlayerParams{
		MIMEs:          video.MIMEs,
		MinDuration:    video.MinDuration,
		MaxDuration:    video.MaxDuration,
		Protocols:      video.Protocols,
		StartDelay:     video.StartDelay,
		Placement:      video.Placement,
		Plcmt:          video.Plcmt,
		Skip:           video.Skip,
		SkipAfter:      video.SkipAfter,
		PlaybackMethod: video.PlaybackMethod,
		API:            video.API,
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return
	}
	flattenObject("vpl", raw, q.Set)
}
