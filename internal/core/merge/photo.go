package merge

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
)

// Photo quality tiers. The absolute numbers only matter relative to each
// other; they mirror the reporting buckets (resolution > byte size > format).
const (
	resHighScore = 40 // >= 500x500
	resMidScore  = 20 // >= 200x200
	resLowScore  = 5

	sizeHighScore = 30 // > 100 KB
	sizeMidScore  = 15 // > 20 KB
	sizeLowScore  = 5

	formatGoodScore  = 20 // png / jpeg
	formatOtherScore = 10

	typeBonus = 5
)

// PhotoScore rates one photo blob. Undecodable data scores 0 and is
// reported, never raised; the caller just skips it.
func PhotoScore(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Printf("skipping undecodable photo (%d bytes): %v", len(data), err)
		return 0
	}

	score := typeBonus

	switch {
	case cfg.Width >= 500 && cfg.Height >= 500:
		score += resHighScore
	case cfg.Width >= 200 && cfg.Height >= 200:
		score += resMidScore
	default:
		score += resLowScore
	}

	switch {
	case len(data) > 100*1024:
		score += sizeHighScore
	case len(data) > 20*1024:
		score += sizeMidScore
	default:
		score += sizeLowScore
	}

	switch format {
	case "png", "jpeg":
		score += formatGoodScore
	default:
		score += formatOtherScore
	}

	return score
}
