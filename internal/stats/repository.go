package stats

// --- Redis 键名常量 ---

const (
	// CountersKey 是一个 Redis Hash 的键，存储当前展示周期的解谜计数。
	// Field: 线索序号（玩家在第几条线索下猜中）
	// Value: 非负整数计数
	CountersKey = "stats:counters"

	// SolversKey 是一个 Redis Hash 的键，存储当前展示周期的去重标记。
	// Field: 参与者UUID
	// Value: SolveMarker 结构体的JSON序列化字符串
	// 某个Field的存在本身就意味着该参与者本周期已被计数。
	SolversKey = "stats:solvers"
)

// --- Redis 数据结构 ---

// SolveMarker 定义了去重标记的内容。
// 标记存在即代表已贡献；其余字段用于归档与排查。
type SolveMarker struct {
	Contributed bool  `json:"contributed"`
	ClueIndex   int   `json:"clueIndex"`
	Timestamp   int64 `json:"timestamp"` // Unix毫秒
}
