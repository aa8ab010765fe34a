package main

import (
	"fmt"
	"os"

	"github.com/sandevgo/lensbot/pkg/dataurl"
	"github.com/spf13/cobra"
)

const previewLength = 100

var encodeOutput string

var encodeCmd = &cobra.Command{
	Use:   "encode <image-path>",
	Short: "Convert an image file to a base64 data URI",
	Long: `Reads an image file and produces a data URI ("data:<media-type>;base64,...")
ready to embed in a vision request. With -o the full URI is written to a file;
otherwise a truncated preview and the total length are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := dataurl.Encode(args[0])
		if err != nil {
			return err
		}
		uri := res.URI()

		if encodeOutput != "" {
			if err := os.WriteFile(encodeOutput, []byte(uri), 0644); err != nil {
				return fmt.Errorf("failed to save output: %w", err)
			}
			fmt.Printf("Data URI saved to %s\n", encodeOutput)
			return nil
		}

		preview := uri
		if len(preview) > previewLength {
			preview = preview[:previewLength] + "..."
		}

		fmt.Println("Base64 Image Data:")
		fmt.Println(preview)
		fmt.Println("\nTotal length:", len(uri))
		fmt.Println("\nTo embed in a vision request:")
		fmt.Printf(`
{
  "model": "qwen/qwen2.5-vl-32b-instruct:free",
  "messages": [{
    "role": "user",
    "content": [
      {"type": "text", "text": "Please describe this image in detail. What does it show?"},
      {"type": "image_url", "image_url": {"url": "%s... (full data URI)"}}
    ]
  }]
}
`, uri[:min(20, len(uri))])
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeOutput, "output", "o", "", "write the full data URI to a file instead of the console")
	rootCmd.AddCommand(encodeCmd)
}
