package civilday

import "time"

// Bounds 表示一个自然日在绝对时间轴上的起止时刻。
// Start 是当日00:00:00.000，End 是当日23:59:59.999。
type Bounds struct {
	Start time.Time
	End   time.Time
}

// DayBounds 根据一个固定的UTC时区偏移，计算给定时刻所处自然日的边界。
// 这是一个纯函数：在同一个自然日内的任意时刻调用，返回的边界完全相同，
// 不受宿主机本地时区设置的影响。
func DayBounds(now time.Time, utcOffsetHours int) Bounds {
	// 1. 构造固定偏移的时区（不依赖系统时区数据库）
	loc := time.FixedZone("", utcOffsetHours*3600)

	// 2. 将时刻转换到该时区下，取出自然日的年月日
	local := now.In(loc)
	year, month, day := local.Date()

	// 3. 以该自然日的零点为起点，日终取23:59:59.999
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Millisecond)

	return Bounds{Start: start, End: end}
}

// SameCivilDay 判断两个时刻在给定的固定偏移下是否属于同一个自然日。
func SameCivilDay(a, b time.Time, utcOffsetHours int) bool {
	return DayBounds(a, utcOffsetHours).Start.Equal(DayBounds(b, utcOffsetHours).Start)
}
