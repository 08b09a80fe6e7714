package clientcli

import "time"

func (c *Client) HTTPTimeout() time.Duration {
	return c.httpClient.Timeout
}
