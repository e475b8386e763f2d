package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	ada "github.com/adafoundation/adawallet/pkg"
)

/*
	These commands are convenience CLI tools that operate on a
	running Adawallet by calling the admin REST API.
*/

// Tip prints the chain tip as seen by a running Adawallet server.
func Tip(c ada.Config) error {
	u, err := adminAPIURL(c, "/tip")
	if err != nil {
		return err
	}
	return getURL(u)
}

// work out the remote admin URL from config and return
// a complete path
func adminAPIURL(c ada.Config, path string) (string, error) {
	host := c.WebAPI.AdminBind
	if host == "" {
		host = "localhost"
	}
	base := fmt.Sprintf("http://%s:%s/", host, c.WebAPI.AdminPort)
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	p, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return u.ResolveReference(p).String(), nil
}

func getURL(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status code: %d", resp.StatusCode)
	}
	fmt.Println(string(body))
	return nil
}
