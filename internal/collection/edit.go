package collection

import "github.com/manhwa-tools/manhwa-translator/internal/models"

// Block edits never change an entry's status. They are only allowed on
// entries that have been translated at least once.

// ReplaceBlocks overwrites the blocks of id.
func (c *Collection) ReplaceBlocks(id string, blocks []models.TranslationBlock) error {
	return c.editBlocks(id, func(_ []models.TranslationBlock) ([]models.TranslationBlock, error) {
		out := cloneBlocks(blocks)
		if out == nil {
			out = []models.TranslationBlock{}
		}
		return out, nil
	})
}

// AppendBlock adds an empty dialogue block at the end of id's blocks.
func (c *Collection) AppendBlock(id string) error {
	return c.editBlocks(id, func(cur []models.TranslationBlock) ([]models.TranslationBlock, error) {
		return append(cur, models.TranslationBlock{Type: models.BlockDialogue}), nil
	})
}

// UpdateBlock changes the type and text of the block at idx.
func (c *Collection) UpdateBlock(id string, idx int, block models.TranslationBlock) error {
	return c.editBlocks(id, func(cur []models.TranslationBlock) ([]models.TranslationBlock, error) {
		if idx < 0 || idx >= len(cur) {
			return nil, ErrBlockIndex
		}
		cur[idx] = block
		return cur, nil
	})
}

// DeleteBlock removes the block at idx.
func (c *Collection) DeleteBlock(id string, idx int) error {
	return c.editBlocks(id, func(cur []models.TranslationBlock) ([]models.TranslationBlock, error) {
		if idx < 0 || idx >= len(cur) {
			return nil, ErrBlockIndex
		}
		return append(cur[:idx], cur[idx+1:]...), nil
	})
}

func (c *Collection) editBlocks(id string, fn func([]models.TranslationBlock) ([]models.TranslationBlock, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.find(id)
	if e == nil {
		return ErrNotFound
	}
	if e.Blocks == nil {
		return ErrNotTranslated
	}
	next, err := fn(cloneBlocks(e.Blocks))
	if err != nil {
		return err
	}
	e.Blocks = next
	return nil
}
