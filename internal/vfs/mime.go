package vfs

import "path"

// Charset is the character set reported for every resource the overlay
// serves.
const Charset = "utf-8"

// mimeTable maps file extensions to MIME types. The engine's resource
// loader only understands this fixed set; OS MIME databases are not
// consulted.
var mimeTable = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".txt":   "text/plain",
	".wasm":  "application/wasm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
}

func mimeByExtension(p string) string {
	if mt, ok := mimeTable[path.Ext(p)]; ok {
		return mt
	}
	return "application/octet-stream"
}
