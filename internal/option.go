package internal

import (
	"net/http"
	"os"
)

type ClientSettings struct {
	Endpoint string
	Database string
	Login    string
	Password string

	HTTPClient *http.Client
}

func GetEndpoint() string {
	return os.Getenv("OPENOBJECT_ENDPOINT") // NOTE better than nothing
}

func GetDatabase() string {
	return os.Getenv("OPENOBJECT_DATABASE")
}
