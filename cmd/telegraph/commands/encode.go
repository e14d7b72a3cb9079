package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/encoding"
)

var encodeWith string

var encodeCmd = &cobra.Command{
	Use:   "encode [text]",
	Short: "Show the pulses, notation and checksum an encoder produces for text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		enc, err := encoding.Lookup(encodeWith)
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		pulses := enc.Encode(text)
		payload := domain.StripTrailer(pulses)

		fmt.Printf("encoder:  %s (%s)\n", enc.Name(), enc.ID())
		fmt.Printf("notation: %s\n", enc.Represent(text))
		fmt.Printf("pulses:   %v\n", pulses)
		if sum, ok := domain.TrailerChecksum(pulses); ok {
			fmt.Printf("checksum: %d\n", sum)
		} else {
			fmt.Printf("checksum: %d (computed)\n", enc.Checksum(payload))
		}
		fmt.Printf("decoded:  %s\n", enc.Decode(pulses))
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeWith, "encoder", "e", encoding.MorseID, "encoder id: "+strings.Join(encoding.IDs(), ", "))
}
