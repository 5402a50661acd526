package http

import (
	"fmt"
	"net/http"
)

const descriptorTemplate = `<?xml version="1.0" encoding="UTF-8" ?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
<specVersion>
<major>1</major>
<minor>0</minor>
</specVersion>
<URLBase>%s</URLBase>
<device>
<deviceType>urn:schemas-upnp-org:device:PhilipsHueBridge:1</deviceType>
<friendlyName>Philips hue (%s)</friendlyName>
<manufacturer>Royal Philips Electronics</manufacturer>
<manufacturerURL>http://www.philips.com</manufacturerURL>
<modelDescription>Philips hue Personal Wireless Lighting</modelDescription>
<modelName>Philips hue bridge 2015</modelName>
<modelNumber>BSB002</modelNumber>
<modelURL>http://www.meethue.com</modelURL>
<serialNumber>%s</serialNumber>
<UDN>uuid:%s</UDN>
<presentationURL>index.html</presentationURL>
</device>
</root>`

// handleDescription serves the UPnP Descriptor (spec.md §4.C). Any verb but
// GET returns 405.
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if s.hub.Port == 443 {
		scheme = "https"
	}
	urlBase := fmt.Sprintf("%s://%s:%d/", scheme, s.hub.IP, s.hub.Port)

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, descriptorTemplate, urlBase, s.hub.IP, s.hub.ID, s.hub.BridgeUUID())
}
