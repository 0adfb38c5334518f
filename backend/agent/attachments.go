package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/furisto/agentcore/backend/provider"
)

// Attachment is a user-supplied image or PDF, supplementing plain-text
// UserInput per original_source/src/agent_core/multimodal.py. Exactly one
// of Data (base64) or URL must be set; URL is image-only.
type Attachment struct {
	MediaType string
	Data      string
	URL       string
}

const (
	maxImageBytes = 20 * 1024 * 1024
	maxPDFBytes   = 32 * 1024 * 1024
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var supportedDocumentTypes = map[string]bool{
	"application/pdf": true,
}

// AttachmentError reports a rejected attachment: unsupported media type,
// missing data/url, or an oversized payload.
type AttachmentError struct {
	Reason string
}

func (e AttachmentError) Error() string { return e.Reason }

func validateAttachment(a Attachment) error {
	if !supportedImageTypes[a.MediaType] && !supportedDocumentTypes[a.MediaType] {
		supported := make([]string, 0, len(supportedImageTypes)+len(supportedDocumentTypes))
		for t := range supportedImageTypes {
			supported = append(supported, t)
		}
		for t := range supportedDocumentTypes {
			supported = append(supported, t)
		}
		sort.Strings(supported)
		return AttachmentError{Reason: fmt.Sprintf("unsupported media type %q, supported: %s", a.MediaType, strings.Join(supported, ", "))}
	}

	if a.Data == "" && a.URL == "" {
		return AttachmentError{Reason: "attachment must provide either data or url"}
	}
	if a.Data != "" && a.URL != "" {
		return AttachmentError{Reason: "attachment must provide either data or url, not both"}
	}

	if a.URL != "" && supportedDocumentTypes[a.MediaType] {
		return AttachmentError{Reason: "PDF attachments do not support url source"}
	}

	if a.Data == "" {
		return nil
	}

	decodedSize := (len(a.Data)*3 + 3) / 4
	if supportedImageTypes[a.MediaType] && decodedSize > maxImageBytes {
		return AttachmentError{Reason: fmt.Sprintf("image is %.1fMB, limit is %dMB", float64(decodedSize)/1024/1024, maxImageBytes/1024/1024)}
	}
	if supportedDocumentTypes[a.MediaType] && decodedSize > maxPDFBytes {
		return AttachmentError{Reason: fmt.Sprintf("PDF is %.1fMB, limit is %dMB", float64(decodedSize)/1024/1024, maxPDFBytes/1024/1024)}
	}
	return nil
}

func attachmentToBlock(a Attachment) provider.ContentBlock {
	if supportedImageTypes[a.MediaType] {
		return provider.ImageBlock{MediaType: a.MediaType, Data: a.Data, URL: a.URL}
	}
	return provider.DocumentBlock{MediaType: a.MediaType, Data: a.Data}
}

// BuildContentBlocks validates attachments and combines them with text into
// the block order Anthropic's own guidance recommends: attachments first,
// text last. It is the entry point UserInput.Blocks is expected to be built
// from when a caller has attachments; plain-text input can skip it.
func BuildContentBlocks(text string, attachments []Attachment) ([]provider.ContentBlock, error) {
	if len(attachments) == 0 {
		return []provider.ContentBlock{provider.TextBlock{Text: text}}, nil
	}

	blocks := make([]provider.ContentBlock, 0, len(attachments)+1)
	for _, a := range attachments {
		if err := validateAttachment(a); err != nil {
			return nil, err
		}
		blocks = append(blocks, attachmentToBlock(a))
	}
	blocks = append(blocks, provider.TextBlock{Text: text})
	return blocks, nil
}
