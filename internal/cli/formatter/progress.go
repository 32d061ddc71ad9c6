package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a ratio as [████░░░░]  45%. Ratios above 1 fill the
// bar and keep their real percentage, so a member at 130% of the reference
// rate still reads 130%.
func RenderProgress(ratio float64, width int) string {
	ratio = max(ratio, 0)
	width = max(width, 2)

	filled := min(int(ratio*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case ratio < 0.33:
		style = StyleRed
	case ratio < 0.66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), ratio*100)
}
