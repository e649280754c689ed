package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/majorcontext/signet/credentials"
	"github.com/majorcontext/signet/imds"
	"github.com/majorcontext/signet/internal/log"
)

// newResolver builds the credential resolver shared by the commands, wiring
// the metadata endpoint override from global config.
func newResolver() *credentials.Resolver {
	var imdsOpts []imds.Option
	if globalCfg.MetadataEndpoint != "" {
		imdsOpts = append(imdsOpts, imds.WithEndpoint(globalCfg.MetadataEndpoint))
	}
	imdsOpts = append(imdsOpts, imds.WithLogger(log.Logger()))

	return credentials.NewResolver(
		credentials.WithMetadataClient(imds.New(imdsOpts...)),
		credentials.WithLogger(log.Logger()),
	)
}

// parseHeaderFlags converts repeated "Name: value" flags into an
// http.Header.
func parseHeaderFlags(flags []string) (http.Header, error) {
	header := make(http.Header)
	for _, flag := range flags {
		name, value, ok := strings.Cut(flag, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: value\"", flag)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return header, nil
}
