// Package outbound 定义订阅解码后的出站描述及其在代理核心配置中的线上格式。
package outbound

import "fmt"

// Protocol 标识出站协议。目前只支持 vmess。
type Protocol string

const (
	ProtocolVMess Protocol = "vmess"
)

// Endpoint 描述目标服务器。
type Endpoint struct {
	Address string
	Port    int
	ID      string // 用户凭据，不透明
}

// Transport 是传输层变体，nil 表示不包装（tcp）。
type Transport interface {
	Network() string
	isTransport()
}

// WebSocket 传输。Path 与 Host 为空时在线上格式中省略。
type WebSocket struct {
	Path string
	Host string
}

func (WebSocket) Network() string { return "ws" }
func (WebSocket) isTransport()    {}

// Security 是安全层变体，nil 表示明文。
type Security interface {
	Mode() string
	isSecurity()
}

// TLS 安全层。
type TLS struct {
	ServerName string
	ALPN       []string
}

func (TLS) Mode() string { return "tls" }
func (TLS) isSecurity()  {}

// Descriptor 是一条订阅链接解码后的规范化出站描述。
type Descriptor struct {
	Name      string
	Protocol  Protocol
	Endpoint  Endpoint
	Transport Transport
	Security  Security
}

// Named 是带来源序号前缀的描述，名称在多个订阅源之间唯一。
type Named struct {
	QualifiedName string
	Descriptor    Descriptor
}

// QualifiedName 按 "{index}_{name}" 生成限定名。
func QualifiedName(sourceIndex int, displayName string) string {
	return fmt.Sprintf("%d_%s", sourceIndex, displayName)
}

// Summary renders the transport/security layers the way the listing shows them.
func (d Descriptor) Summary() string {
	network := "tcp"
	if d.Transport != nil {
		network = d.Transport.Network()
	}
	security := "none"
	if d.Security != nil {
		security = d.Security.Mode()
	}
	return fmt.Sprintf("%s/%s", network, security)
}
