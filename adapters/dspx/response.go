package dspx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
	"golang.org/x/text/currency"
)

// creativeKind tags which variant of the dspx response body was decoded.
type creativeKind int

const (
	passback creativeKind = iota
	htmlCreative
	vastInlineCreative
	vastURLCreative
)

const (
	defaultTTL      = 300
	defaultCurrency = "EUR"
	cpmDivisor      = 1000000
)

// dspxResponse is the decoded body of one dspx answer. Only the fields of kind are set.
type dspxResponse struct {
	kind creativeKind

	cpm        float64
	width      int64
	height     int64
	crid       string
	ttl        int64
	currency   string
	netRevenue bool
	adomain    []string
	requestID  string
	zone       string
	adType     string

	adm           string
	vastURL       string
	videoCacheKey string

	htmlMarkup string
	vastXML    string

	// appendix keeps bid_appendix fields and unknown top-level fields, in document order.
	appendix []rawField
}

type rawField struct {
	key   string
	value json.RawMessage
}

// knownFields are consumed by decodeResponse and never copied into the appendix.
var knownFields = map[string]struct{}{
	"cpm": {}, "crid": {}, "width": {}, "height": {}, "type": {}, "adTag": {}, "ad": {},
	"vastXml": {}, "vastUrl": {}, "videoCacheKey": {}, "requestId": {}, "currency": {},
	"ttl": {}, "netRevenue": {}, "zone": {}, "adomain": {}, "userSync": {}, "bid_appendix": {},
	"renderer": {}, "reason": {}, "status": {}, "msg": {}, "dealId": {},
}

// decodeResponse reads a dspx body. Empty bodies, error statuses and bodies without a
// positive cpm are passbacks. Malformed optional fields keep their defaults and are
// returned as warnings; the bid survives.
func decodeResponse(body []byte) (*dspxResponse, []string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &dspxResponse{kind: passback}, nil, nil
	}
	if !json.Valid(body) {
		return nil, nil, fmt.Errorf("malformed response body")
	}

	_, dataType, _, err := jsonparser.Get(body)
	if err != nil || dataType != jsonparser.Object {
		return nil, nil, fmt.Errorf("expected a JSON object, got %s", dataType)
	}

	if status, err := jsonparser.GetString(body, "status"); err == nil && status == "error" {
		return &dspxResponse{kind: passback}, nil, nil
	}

	cpmValue, cpmType, _, err := jsonparser.Get(body, "cpm")
	if err != nil || cpmType == jsonparser.Null {
		return &dspxResponse{kind: passback}, nil, nil
	}
	cpm, err := parseNumber(cpmValue, cpmType)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid cpm: %s", err)
	}
	if cpm <= 0 {
		return &dspxResponse{kind: passback}, nil, nil
	}

	resp := &dspxResponse{
		cpm:        cpm,
		ttl:        defaultTTL,
		currency:   defaultCurrency,
		netRevenue: true,
		adomain:    []string{},
	}

	var warnings []string
	if currencyValue, currencyType, _, err := jsonparser.Get(body, "currency"); err == nil {
		switch currencyType {
		case jsonparser.String:
			if resp.currency, err = parseCurrency(currencyValue); err != nil {
				return nil, nil, fmt.Errorf("invalid currency: %s", err)
			}
		case jsonparser.Null:
		default:
			warnings = append(warnings, fmt.Sprintf("invalid currency: expected a string, got %s; using %s", currencyType, defaultCurrency))
		}
	}

	err = jsonparser.ObjectEach(body, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if err := resp.readField(string(key), value, dataType); err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s: %s", key, err))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	switch {
	case resp.vastXML != "":
		resp.kind = vastInlineCreative
		resp.adm = resp.vastXML
	case resp.vastURL != "":
		resp.kind = vastURLCreative
	case resp.htmlMarkup != "":
		resp.kind = htmlCreative
		resp.adm = resp.htmlMarkup
	default:
		return nil, nil, fmt.Errorf("response has a cpm but no creative")
	}
	return resp, warnings, nil
}

// readField stores one top-level field. A returned error leaves the field at its default.
func (r *dspxResponse) readField(key string, value []byte, dataType jsonparser.ValueType) error {
	if dataType == jsonparser.Null {
		return nil
	}

	var err error
	switch key {
	case "width":
		var width int64
		if width, err = parseDimension(value, dataType); err == nil {
			r.width = width
		}
	case "height":
		var height int64
		if height, err = parseDimension(value, dataType); err == nil {
			r.height = height
		}
	case "crid":
		r.crid = scalarString(value, dataType)
	case "ttl":
		var ttl float64
		if ttl, err = parseNumber(value, dataType); err == nil && ttl > 0 {
			r.ttl = int64(ttl)
		}
	case "netRevenue":
		if netRevenue, boolErr := jsonparser.ParseBoolean(value); boolErr == nil {
			r.netRevenue = netRevenue
		}
	case "adomain":
		jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
			if dt != jsonparser.String {
				return
			}
			if domain, err := jsonparser.ParseString(v); err == nil && domain != "" {
				r.adomain = append(r.adomain, domain)
			}
		})
	case "requestId":
		r.requestID = scalarString(value, dataType)
	case "zone":
		r.zone = scalarString(value, dataType)
	case "type":
		r.adType = scalarString(value, dataType)
	case "adTag":
		if tag := scalarString(value, dataType); tag != "" {
			r.htmlMarkup = tag
		}
	case "ad":
		if r.htmlMarkup == "" {
			r.htmlMarkup = scalarString(value, dataType)
		}
	case "vastXml":
		r.vastXML = scalarString(value, dataType)
	case "vastUrl":
		r.vastURL = scalarString(value, dataType)
	case "videoCacheKey":
		r.videoCacheKey = scalarString(value, dataType)
	case "bid_appendix":
		if dataType == jsonparser.Object {
			jsonparser.ObjectEach(value, func(k []byte, v []byte, dt jsonparser.ValueType, _ int) error {
				r.appendix = append(r.appendix, rawField{key: string(k), value: rawJSON(v, dt)})
				return nil
			})
		}
	default:
		if _, known := knownFields[key]; !known {
			r.appendix = append(r.appendix, rawField{key: key, value: rawJSON(value, dataType)})
		}
	}
	return err
}

// rawJSON restores the quotes jsonparser strips from string values.
func rawJSON(value []byte, dataType jsonparser.ValueType) json.RawMessage {
	if dataType == jsonparser.String {
		quoted := make([]byte, 0, len(value)+2)
		quoted = append(quoted, '"')
		quoted = append(quoted, value...)
		quoted = append(quoted, '"')
		return quoted
	}
	return append(json.RawMessage(nil), value...)
}

func parseNumber(value []byte, dataType jsonparser.ValueType) (float64, error) {
	switch dataType {
	case jsonparser.Number:
		return jsonparser.ParseFloat(value)
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("expected a number, got %s", dataType)
}

// parseDimension accepts "300", 300 and 300.0. Empty strings mean unknown.
func parseDimension(value []byte, dataType jsonparser.ValueType) (int64, error) {
	if dataType == jsonparser.String && len(value) == 0 {
		return 0, nil
	}
	f, err := parseNumber(value, dataType)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, nil
	}
	return int64(f), nil
}

func scalarString(value []byte, dataType jsonparser.ValueType) string {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Number, jsonparser.Boolean:
		return string(value)
	}
	return ""
}

func parseCurrency(value []byte) (string, error) {
	s, err := jsonparser.ParseString(value)
	if err != nil {
		return "", err
	}
	if s == "" {
		return defaultCurrency, nil
	}
	unit, err := currency.ParseISO(s)
	if err != nil {
		return "", err
	}
	return unit.String(), nil
}
