package device

import (
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mssola/useragent"
)

// Fingerprint is the coarse, per-request identity of a client.
type Fingerprint struct {
	Name  string      `json:"name"`
	Class DeviceClass `json:"device_class"`
	OS    OSFamily    `json:"os_family"`
}

// maxNameLength caps the free-text device name, in runes.
const maxNameLength = 64

// ClientInfo is everything the trust engine needs to know about the caller.
type ClientInfo struct {
	Fingerprint Fingerprint
	IP          string // "" when unknown or invalid
}

// ClientInfoFromRequest captures the fingerprint and client IP of r.
func ClientInfoFromRequest(r *http.Request) ClientInfo {
	return ClientInfo{
		Fingerprint: ExtractFingerprint(r.Header),
		IP:          ExtractClientIP(r.Header, r.RemoteAddr),
	}
}

// ExtractFingerprint derives a Fingerprint from the User-Agent header and
// the Sec-CH-UA* client hints. Hints win over the parsed User-Agent.
// Missing or malformed headers degrade to Unknown values.
func ExtractFingerprint(h http.Header) Fingerprint {
	var browser, osName, model string
	var mobile bool

	if ua := strings.TrimSpace(h.Get("User-Agent")); ua != "" && utf8.ValidString(ua) {
		parsed := useragent.New(ua)
		// useragent names the first product token of any UA; only
		// Mozilla-style non-bot agents carry a browser name
		if name, _ := parsed.Browser(); !parsed.Bot() && (parsed.Mozilla() != "" || name == "Opera") {
			browser = name
		}
		osName = parsed.OSInfo().Name
		mobile = parsed.Mobile()
		// useragent reports Apple handhelds by platform and names the OS
		// "iPhone OS" or just "OS"
		switch p := parsed.Platform(); p {
		case "iPhone", "iPad", "iPod":
			model = p
			osName = "iOS"
		}
	}

	if brand := primaryBrand(h.Get("Sec-CH-UA")); brand != "" {
		browser = brand
	}
	if platform := unquoteHint(h.Get("Sec-CH-UA-Platform")); platform != "" {
		osName = platform
	}
	if m := unquoteHint(h.Get("Sec-CH-UA-Model")); m != "" {
		model = m
	}
	browser, osName, model = cleanText(browser), cleanText(osName), cleanText(model)
	switch strings.TrimSpace(h.Get("Sec-CH-UA-Mobile")) {
	case "?1":
		mobile = true
	case "?0":
		mobile = false
	}

	return Fingerprint{
		Name:  deviceName(model, browser, osName),
		Class: deviceClass(browser, mobile),
		OS:    osFamily(osName),
	}
}

func deviceName(model, browser, osName string) string {
	for _, candidate := range []string{model, browser, osName} {
		if candidate != "" {
			return candidate
		}
	}
	return UnknownName
}

// cleanText drops values that are not storable text and truncates the rest
// to maxNameLength runes.
func cleanText(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	if strings.ContainsFunc(s, unicode.IsControl) {
		return ""
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxNameLength {
		s = strings.TrimSpace(string([]rune(s)[:maxNameLength]))
	}
	return s
}

func deviceClass(browser string, mobile bool) DeviceClass {
	switch {
	case browser != "":
		return DeviceClassBrowser
	case mobile:
		return DeviceClassMobile
	default:
		return DeviceClassUnknown
	}
}

func osFamily(osName string) OSFamily {
	switch {
	case strings.EqualFold(osName, "iOS"), strings.EqualFold(osName, "iPadOS"):
		return OSiOS
	case strings.HasPrefix(strings.ToLower(osName), "android"):
		return OSAndroid
	default:
		return OSUnknown
	}
}

// primaryBrand picks the most specific brand from a Sec-CH-UA list such as
// `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`.
// GREASE entries are skipped and Chromium only wins when it is alone.
func primaryBrand(header string) string {
	var fallback string
	for _, entry := range strings.Split(header, ",") {
		brand := unquoteHint(strings.SplitN(entry, ";", 2)[0])
		if brand == "" || isGreaseBrand(brand) {
			continue
		}
		if brand == "Chromium" {
			fallback = brand
			continue
		}
		return brand
	}
	return fallback
}

func isGreaseBrand(brand string) bool {
	return strings.Contains(brand, "Not") && strings.Contains(brand, "Brand")
}

func unquoteHint(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"`)
}
