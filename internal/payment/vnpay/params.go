package vnpay

import (
	"net/url"
	"sort"
	"strings"
)

// Pair 有序参数项
type Pair struct {
	Key   string
	Value string
}

// Params 规范化参数集合
// 键按字节序升序输出，空值不会被存储
type Params struct {
	values map[string]string
}

// NewParams 创建参数集合
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set 写入参数，空值忽略，同名键覆盖
func (p *Params) Set(key, value string) {
	if value == "" {
		return
	}
	if p.values == nil {
		p.values = make(map[string]string)
	}
	p.values[key] = value
}

// Del 删除参数
func (p *Params) Del(key string) {
	delete(p.values, key)
}

// Get 读取参数，不存在返回空串
func (p *Params) Get(key string) string {
	return p.values[key]
}

// Has 判断参数是否存在
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Len 参数数量
func (p *Params) Len() int {
	return len(p.values)
}

// Keys 按字节序返回全部键
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pairs 按字节序返回全部参数
func (p *Params) Pairs() []Pair {
	keys := p.Keys()
	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Value: p.values[k]})
	}
	return pairs
}

// Encode 生成待签名查询串（k=v&k=v，无尾部分隔符）
func (p *Params) Encode() string {
	keys := p.Keys()
	if len(keys) == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(p.values[k]))
	}
	return b.String()
}

// escape RFC 3986 百分号编码，空格编码为 %20
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
