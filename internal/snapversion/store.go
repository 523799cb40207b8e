package snapversion

import (
	"context"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/updatesnap/internal/forge"
)

// DefaultStoreURL is the snap store API root.
const DefaultStoreURL = "https://api.snapcraft.io"

// Channel is one entry of a snap's channel map.
type Channel struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created-at"`
	Channel   struct {
		Name         string `json:"name"`
		Architecture string `json:"architecture"`
		Track        string `json:"track"`
		Risk         string `json:"risk"`
	} `json:"channel"`
}

// Info is the subset of /v2/snaps/info used here.
type Info struct {
	Name       string    `json:"name"`
	ChannelMap []Channel `json:"channel-map"`
}

// Find returns the entry for a channel name and architecture, or nil.
func (i *Info) Find(name, arch string) *Channel {
	for idx := range i.ChannelMap {
		c := &i.ChannelMap[idx]
		if c.Channel.Name == name && c.Channel.Architecture == arch {
			return c
		}
	}
	return nil
}

// StoreClient reads snap metadata from the store.
type StoreClient struct {
	*forge.BaseForge
	baseURL string
}

// NewStoreClient creates a StoreClient. An empty baseURL uses
// DefaultStoreURL.
func NewStoreClient(baseURL string, opts forge.Options) *StoreClient {
	if baseURL == "" {
		baseURL = DefaultStoreURL
	}
	base := forge.NewBaseForge("snapstore", opts)
	base.SetCustomHeader("Snap-Device-Series", "16")
	return &StoreClient{BaseForge: base, baseURL: strings.TrimRight(baseURL, "/")}
}

// Info returns the channel map of a snap.
func (c *StoreClient) Info(ctx context.Context, snap string) (*Info, error) {
	var info Info
	if _, err := c.Get(ctx, c.baseURL+"/v2/snaps/info/"+url.PathEscape(snap), &info); err != nil {
		return nil, err
	}
	return &info, nil
}
