package configwatcher

import (
	"english_club_backend/internal/config"
	"english_club_backend/pkg/logger"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = time.Second

// Reloader 接收重新加载后的配置
type Reloader func(cfg *config.Config)

// Watcher 监听配置文件所在目录，文件被写入或替换后防抖重载
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	reload  Reloader
	done    chan struct{}
}

func New(configPath string, reload Reloader) (*Watcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// 监听目录，编辑器保存时常以重命名方式替换文件
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		path:    absPath,
		watcher: fw,
		reload:  reload,
		done:    make(chan struct{}),
	}, nil
}

// Run 阻塞直到 Close
func (w *Watcher) Run() {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.done:
			timer.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(w.path))
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			w.reload(newCfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
