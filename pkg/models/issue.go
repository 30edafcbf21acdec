package models

// Issue 从 issue tracker 拉取的只读 Issue 记录
type Issue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url,omitempty"`
}

// MaxSelectorsPerURL 每个页面最多保留的候选选择器数量，用于限制 prompt 大小
const MaxSelectorsPerURL = 10

// SelectorSet URL -> 按首次出现顺序排列的候选选择器
type SelectorSet map[string][]string

// URLs 返回按给定顺序出现在集合中的 URL
func (s SelectorSet) URLs(order []string) []string {
	urls := make([]string, 0, len(s))
	seen := make(map[string]bool, len(order))
	for _, u := range order {
		if _, ok := s[u]; ok && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}
