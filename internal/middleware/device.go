package middleware

import (
	"net/http"
	"strings"

	"github.com/pkordes/tripmate/internal/device"
)

// DeviceHeader names the calling client. Browsers generate a random id once
// and send it on every request.
const DeviceHeader = "X-Device-ID"

// maxDeviceIDLength bounds what is stored per binding row.
const maxDeviceIDLength = 128

// NewDeviceIdentity returns a middleware that copies the X-Device-ID header
// into the request context. Requests without the header, or with an id that
// is blank or too long, carry no device id.
func NewDeviceIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(DeviceHeader))
			if id != "" && len(id) <= maxDeviceIDLength {
				r = r.WithContext(device.WithID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
