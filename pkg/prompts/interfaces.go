package prompts

// ImagePrompt は画像生成プロバイダに渡すテキスト一式です。
// SystemPrompt と NegativePrompt はプロバイダ側でそれぞれの欄に入ります。
type ImagePrompt struct {
	Prompt         string
	SystemPrompt   string
	NegativePrompt string
}

// PanoramaPrompt はパノラマ生成用プロンプトを構築する契約です。
type PanoramaPrompt interface {
	// Build は、バッチ内ルームの記述と経路構造からプロンプト一式を生成します。
	Build(in PanoramaInput) ImagePrompt
}

// NarrativePrompt はナラティブ生成用プロンプトを構築する契約です。
type NarrativePrompt interface {
	Build(data StoryContextData) (string, error)
}
