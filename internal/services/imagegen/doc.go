// Package imagegen is the image generation adapter for an OpenAI-compatible
// /images/generations endpoint. Generate returns a URL; base64 responses are
// converted to data:image/png URIs.
package imagegen
