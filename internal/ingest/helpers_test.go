package ingest_test

import (
	"time"

	"cardsync/internal/fetch"
	"cardsync/internal/imaging"
	"cardsync/internal/locate"
)

func locateDirect() locate.Locator { return locate.Direct{} }

func fetcher() fetch.Source { return fetch.NewHTTPSource(2 * time.Second) }

func transformer() imaging.Transformer {
	return imaging.Transformer{FitPolicy: imaging.FitThumbnail, Width: 32, Height: 32, Codec: imaging.CodecPNG}
}
