package dspx

import (
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

// eidSourceCodes maps an identity source domain to the did_ suffix dspx knows it by.
var eidSourceCodes = map[string]string{
	"criteo.com":   "cruid",
	"pubcid.org":   "pubcid",
	"netid.de":     "netid",
	"uidapi.com":   "uidapi",
	"sharedid.org": "sharedid",
	"adserver.org": "adserver",
	"pubmatic.com": "pubmatic",
	"yahoo.com":    "yahoo",
	"utiq.com":     "utiq",
	"euid.eu":      "euid",
	"id5-sync.com": "id5uid",
}

const id5Source = "id5-sync.com"

func userEIDs(user *openrtb2.User) []openrtb2.EID {
	if user == nil {
		return nil
	}
	if len(user.EIDs) > 0 {
		return user.EIDs
	}
	if len(user.Ext) == 0 {
		return nil
	}
	var extUser openrtb_ext.ExtUser
	if err := jsonutil.Unmarshal(user.Ext, &extUser); err != nil {
		return nil
	}
	return extUser.Eids
}

// appendEIDs writes did_<code> for every known source. Only the first uid of a source
// is used, and the first source wins when a code repeats.
func appendEIDs(q *queryBuilder, eids []openrtb2.EID) {
	for _, eid := range eids {
		if len(eid.UIDs) == 0 {
			continue
		}

		code, known := eidSourceCodes[eid.Source]
		if !known {
			if id, ok := ppuid(eid.UIDs); ok {
				q.SetIfEmpty("did_ppuid", id)
			}
			continue
		}

		uid := eid.UIDs[0]
		if uid.ID == "" {
			continue
		}
		q.SetIfEmpty("did_"+code, uid.ID)

		if eid.Source == id5Source {
			if linkType, err := jsonparser.GetInt(uid.Ext, "linkType"); err == nil {
				q.SetIfEmpty("did_id5_linktype", strconv.FormatInt(linkType, 10))
			}
		}
	}
}

func ppuid(uids []openrtb2.UID) (string, bool) {
	for _, uid := range uids {
		if uid.ID == "" || len(uid.Ext) == 0 {
			continue
		}
		if stype, err := jsonparser.GetString(uid.Ext, "stype"); err == nil && stype == "ppuid" {
			return uid.ID, true
		}
	}
	return "", false
}
