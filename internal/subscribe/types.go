// Package subscribe decodes v2rayN style subscriptions into outbound descriptors.
package subscribe

import "github.com/creamcroissant/v2mng/internal/outbound"

// Bundle 是单个订阅源解析后的结果，按显示名索引。
// 重名条目后写覆盖先写，但保留首次出现的位置。
type Bundle struct {
	order    []string
	entries  map[string]outbound.Descriptor
	Rejected []Rejection
}

// Rejection 记录被跳过的一行。
type Rejection struct {
	Line int    // 1-based
	Link string
	Err  error
}

func newBundle() *Bundle {
	return &Bundle{entries: make(map[string]outbound.Descriptor)}
}

func (b *Bundle) put(d outbound.Descriptor) {
	if _, ok := b.entries[d.Name]; !ok {
		b.order = append(b.order, d.Name)
	}
	b.entries[d.Name] = d
}

// Len returns the number of distinct display names.
func (b *Bundle) Len() int { return len(b.order) }

// Names returns display names in first-seen order.
func (b *Bundle) Names() []string {
	return append([]string(nil), b.order...)
}

// Get looks up a descriptor by display name.
func (b *Bundle) Get(name string) (outbound.Descriptor, bool) {
	d, ok := b.entries[name]
	return d, ok
}

// SourceResult 描述单个订阅源的处理结果。
type SourceResult struct {
	Index    int    `json:"index"`
	Source   string `json:"source"`
	Entries  int    `json:"entries"`
	Rejected int    `json:"rejected"`
	Err      error  `json:"-"`
}

// OK reports whether the source was retrieved and its envelope decoded.
func (r SourceResult) OK() bool { return r.Err == nil }

// Report 汇总一次拉取的全部结果。
type Report struct {
	Entries     []outbound.Named
	Sources     []SourceResult
	ContentHash string // 全部源内容的摘要，用于变更检测
}

// Failed returns the sources that produced no bundle.
func (r *Report) Failed() []SourceResult {
	var failed []SourceResult
	for _, s := range r.Sources {
		if !s.OK() {
			failed = append(failed, s)
		}
	}
	return failed
}
