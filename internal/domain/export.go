package domain

// Export is an unpacked WhatsApp export: the chat transcript and the image
// files found next to it.
type Export struct {
	Dir      string
	ChatFile string
	Media    []MediaAsset
}
