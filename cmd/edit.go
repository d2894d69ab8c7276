package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/spf13/cobra"
)

func newEditCmd(flags *rootFlags) *cobra.Command {
	var (
		index     int
		blockType string
		text      string
		appendNew bool
		remove    bool
		fromJSON  string
	)

	cmd := &cobra.Command{
		Use:   "edit <entry-id>",
		Short: "Correct the translated blocks of a page",
		Long: `Edits the blocks of a translated page. Editing never changes the page
status. Block indexes are shown by "status --blocks".`,
		Example: `  # Fix the text of block 2
  manhwa-translator edit 3f0c... --index 2 --text "..."

  # Mark block 0 as a sound effect
  manhwa-translator edit 3f0c... --index 0 --type sfx

  # Add an empty dialogue block, or delete block 3
  manhwa-translator edit 3f0c... --append
  manhwa-translator edit 3f0c... --index 3 --delete

  # Replace all blocks from a JSON file
  manhwa-translator edit 3f0c... --from-json blocks.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withApp(cmd.Context(), flags, func(a *app) error {
				images := a.state.Images
				var err error
				switch {
				case fromJSON != "":
					var blocks []models.TranslationBlock
					if blocks, err = readBlocks(fromJSON); err == nil {
						err = images.ReplaceBlocks(id, blocks)
					}
				case appendNew:
					err = images.AppendBlock(id)
				case remove:
					err = images.DeleteBlock(id, index)
				default:
					if !cmd.Flags().Changed("type") && !cmd.Flags().Changed("text") {
						return fmt.Errorf("nothing to change: use --text, --type, --append, --delete or --from-json")
					}
					entry, found := images.Get(id)
					switch {
					case !found:
						return collection.ErrNotFound
					case entry.Blocks == nil:
						return collection.ErrNotTranslated
					case index < 0 || index >= len(entry.Blocks):
						return collection.ErrBlockIndex
					}
					block := entry.Blocks[index]
					if cmd.Flags().Changed("type") {
						block.Type = models.BlockType(blockType)
						if !block.Type.Valid() {
							return fmt.Errorf("invalid block type %q", blockType)
						}
					}
					if cmd.Flags().Changed("text") {
						block.Text = text
					}
					err = images.UpdateBlock(id, index, block)
				}
				if err != nil {
					return err
				}

				entry, _ := images.Get(id)
				printEntries(cmd.OutOrStdout(), []models.ImageEntry{entry}, true)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "Block index")
	cmd.Flags().StringVar(&blockType, "type", "", "New block type (dialogue, thought, narration, sfx)")
	cmd.Flags().StringVar(&text, "text", "", "New block text")
	cmd.Flags().BoolVar(&appendNew, "append", false, "Append an empty dialogue block")
	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the block at --index")
	cmd.Flags().StringVar(&fromJSON, "from-json", "", "Replace every block with the JSON array in this file")
	cmd.MarkFlagsMutuallyExclusive("append", "delete", "from-json")
	return cmd
}

func readBlocks(path string) ([]models.TranslationBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blocks: %w", err)
	}
	var blocks []models.TranslationBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("parse blocks: %w", err)
	}
	for _, b := range blocks {
		if !b.Type.Valid() {
			return nil, fmt.Errorf("invalid block type %q", b.Type)
		}
	}
	return blocks, nil
}
