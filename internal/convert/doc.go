package convert

// Package convert runs media conversions as background tasks. Images are
// re-encoded in-process (pure Go for png/jpeg/gif/bmp, libvips for
// webp/avif); videos are remuxed and transcoded through an ffmpeg
// subprocess with progress reporting. Completed artifacts land in the
// configured output directory as "converted.<format>".
