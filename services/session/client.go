package session

import (
	"context"

	"github.com/mileusna/useragent"
)

type ClientInfo struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

func WithClient(ctx context.Context, client ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

func ClientFromContext(ctx context.Context) (ClientInfo, bool) {
	client, ok := ctx.Value(clientKey{}).(ClientInfo)
	return client, ok
}

type Device struct {
	Browser string
	OS      string
	Type    string
}

func DescribeDevice(userAgent string) Device {
	if userAgent == "" {
		return Device{Browser: "Unknown Browser", OS: "Unknown OS", Type: "Unknown"}
	}

	ua := useragent.Parse(userAgent)

	device := Device{Browser: "Unknown Browser", OS: "Unknown OS", Type: "Desktop"}
	switch {
	case ua.Bot:
		device.Type = "Bot"
	case ua.Mobile:
		device.Type = "Mobile"
	case ua.Tablet:
		device.Type = "Tablet"
	}

	if ua.Name != "" {
		device.Browser = ua.Name
		if ua.Version != "" {
			device.Browser += " " + ua.Version
		}
	}
	if ua.OS != "" {
		device.OS = ua.OS
		if ua.OSVersion != "" {
			device.OS += " " + ua.OSVersion
		}
	}

	return device
}
