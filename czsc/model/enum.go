package model

// Direction 方向
type Direction int8

const (
	NoDirection Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "向上"
	case Down:
		return "向下"
	default:
		return "无方向"
	}
}

// Opposite 反向，无方向时仍返回无方向
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	default:
		return NoDirection
	}
}

// Mark 分型标记，G 为顶分型，D 为底分型
type Mark int8

const (
	NoMark Mark = iota
	G
	D
)

func (m Mark) String() string {
	switch m {
	case G:
		return "顶分型"
	case D:
		return "底分型"
	default:
		return "无分型"
	}
}

func (m Mark) Opposite() Mark {
	switch m {
	case G:
		return D
	case D:
		return G
	default:
		return NoMark
	}
}
