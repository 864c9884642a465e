package httpapi

import "github.com/custodia-labs/camdeck/internal/core/domain"

type playbackView struct {
	SessionID  string     `json:"session_id,omitempty"`
	Active     bool       `json:"active"`
	ClipID     string     `json:"clip_id,omitempty"`
	ClipName   string     `json:"clip_name,omitempty"`
	ChunkIndex int        `json:"chunk_index"`
	ChunkCount int        `json:"chunk_count"`
	ChunkTime  string     `json:"chunk_time,omitempty"`
	Exhausted  bool       `json:"exhausted"`
	Feeds      []feedView `json:"feeds"`
}

type feedView struct {
	Camera     string `json:"camera"`
	Primary    bool   `json:"primary"`
	State      string `json:"state"`
	ChunkIndex int    `json:"chunk_index"`
	Path       string `json:"path,omitempty"`
	Preloaded  string `json:"preloaded,omitempty"`
	Error      string `json:"error,omitempty"`
}

func newPlaybackView(st domain.PlaybackStatus) playbackView {
	v := playbackView{
		SessionID:  st.SessionID,
		Active:     st.Active,
		ClipID:     st.ClipID,
		ClipName:   st.ClipName,
		ChunkIndex: st.ChunkIndex,
		ChunkCount: st.ChunkCount,
		Exhausted:  st.Exhausted,
		Feeds:      make([]feedView, 0, len(st.Feeds)),
	}
	if !st.ChunkTime.IsZero() {
		v.ChunkTime = st.ChunkTime.Format(domain.SegmentTimeLayout)
	}
	for _, f := range st.Feeds {
		fv := feedView{
			Camera:     f.Camera,
			Primary:    f.Primary,
			State:      f.State.String(),
			ChunkIndex: f.ChunkIndex,
			Path:       f.Path,
			Preloaded:  f.Preloaded,
		}
		if f.Err != nil {
			fv.Error = f.Err.Error()
		}
		v.Feeds = append(v.Feeds, fv)
	}
	return v
}
