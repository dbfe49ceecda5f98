package tracking

import (
	"github.com/mileusna/useragent"
)

// Device types derived from the user-agent string.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// Device describes what could be extracted from a raw user-agent string.
// Fields are empty when the string is unparseable.
type Device struct {
	Type           string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
}

// ParseDevice interprets a raw user-agent string. Device type precedence is
// mobile > tablet > desktop > unknown. Never fails: garbage input yields
// DeviceUnknown with empty browser/OS fields.
func ParseDevice(userAgent string) Device {
	ua := useragent.Parse(userAgent)

	deviceType := DeviceUnknown
	switch {
	case ua.Mobile:
		deviceType = DeviceMobile
	case ua.Tablet:
		deviceType = DeviceTablet
	case ua.Desktop:
		deviceType = DeviceDesktop
	}

	return Device{
		Type:           deviceType,
		Browser:        ua.Name,
		BrowserVersion: ua.Version,
		OS:             ua.OS,
		OSVersion:      ua.OSVersion,
	}
}
