package cli

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/majorcontext/signet/sign"
	"github.com/spf13/cobra"
)

var (
	signMethod  string
	signURL     string
	signService string
	signBody    string
	signHeaders []string
)

func init() {
	signCmd.Flags().StringVarP(&signMethod, "method", "X", http.MethodGet, "HTTP method")
	signCmd.Flags().StringVar(&signURL, "url", "", "request URL (required)")
	signCmd.Flags().StringVar(&signService, "service", "", "AWS service name, e.g. s3 or iam (required)")
	signCmd.Flags().StringVar(&signBody, "body", "", "request body")
	signCmd.Flags().StringArrayVarP(&signHeaders, "header", "H", nil, "request header as \"Name: value\" (repeatable)")
	signCmd.MarkFlagRequired("url")
	signCmd.MarkFlagRequired("service")
	rootCmd.AddCommand(signCmd)
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a request and print the resulting headers and body",
	Long: `Sign a request description with the resolved credentials and print
the signed headers (and body, for legacy query-signed services) for
comparison against AWS documentation. The secret key never appears in the
output; the derived signature does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := newResolver().Resolve(cmd.Context())
		if err != nil {
			return err
		}
		header, err := parseHeaderFlags(signHeaders)
		if err != nil {
			return err
		}

		req := &sign.Request{
			Method:  signMethod,
			URL:     signURL,
			Header:  header,
			Body:    []byte(signBody),
			Service: signService,
			Region:  region,
			Creds:   creds,
		}
		if err := sign.Sign(req, time.Now()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		names := make([]string, 0, len(req.Header))
		for name := range req.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, value := range req.Header[name] {
				fmt.Fprintf(out, "%s: %s\n", name, value)
			}
		}
		if sign.SchemeForService(signService) == sign.SchemeV2 {
			fmt.Fprintf(out, "\n%s\n", req.Body)
		}
		return nil
	},
}
