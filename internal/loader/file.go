package loader

import (
	"fmt"
	"os"
)

// readFile loads a plain text or Markdown file from disk.
func (c *Client) readFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if info.Size() > c.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return string(content), nil
}
