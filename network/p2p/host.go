package p2p

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// NewHost creates a libp2p host listening on the configured addresses.
func NewHost(config Config) (host.Host, error) {
	key, err := LoadOrGenerateKey(config.KeyFile)
	if err != nil {
		return nil, err
	}

	addrs := make([]multiaddr.Multiaddr, 0, len(config.ListenAddrs))
	for _, s := range config.ListenAddrs {
		addr, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid listen address %q: %w", s, err)
		}
		addrs = append(addrs, addr)
	}

	opts := []libp2p.Option{
		libp2p.Identity(key),
		libp2p.ListenAddrs(addrs...),
	}
	if config.UserAgent != "" {
		opts = append(opts, libp2p.UserAgent(config.UserAgent))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create host: %w", err)
	}
	return h, nil
}

// LoadOrGenerateKey reads the host key from path. A missing file is created
// with a new ed25519 key. An empty path yields an ephemeral key.
func LoadOrGenerateKey(path string) (crypto.PrivKey, error) {
	if path == "" {
		key, _, err := crypto.GenerateEd25519Key(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("could not generate host key: %w", err)
		}
		return key, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		key, err := crypto.UnmarshalPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("could not decode host key %s: %w", path, err)
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not read host key %s: %w", path, err)
	}

	key, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("could not generate host key: %w", err)
	}
	raw, err := crypto.MarshalPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("could not encode host key: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return nil, fmt.Errorf("could not write host key %s: %w", path, err)
	}
	return key, nil
}

// ParseBootstrapPeers parses full multiaddrs including the /p2p/<id> component.
// Addresses of the same peer are merged.
func ParseBootstrapPeers(addrs []string) ([]peer.AddrInfo, error) {
	maddrs := make([]multiaddr.Multiaddr, 0, len(addrs))
	for _, s := range addrs {
		addr, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap address %q: %w", s, err)
		}
		maddrs = append(maddrs, addr)
	}
	infos, err := peer.AddrInfosFromP2pAddrs(maddrs...)
	if err != nil {
		return nil, fmt.Errorf("invalid bootstrap addresses: %w", err)
	}
	return infos, nil
}
