package terminal

// Icons for terminal output
const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconInfo    = "ℹ️"
	IconRocket  = "🚀"
	IconBox     = "📦"
	IconDocker  = "🐳"
	IconBuild   = "🔨"
	IconCache   = "💾"
	IconSpeed   = "⚡"
	IconCheck   = "✓"
	IconCross   = "✗"
	IconArrow   = "→"
	IconDot     = "•"
)
