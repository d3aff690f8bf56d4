package presence

// --- Redis 键名常量 ---

const (
	// ActiveKey 是一个 Redis Sorted Set 的键，存储参与者的在线心跳。
	// Score: 最近一次心跳的Unix毫秒时间戳
	// Member: 参与者UUID
	// 同一参与者最多只有一个成员，ZAdd天然满足"每个身份至多一条记录"。
	ActiveKey = "presence:active"
)
