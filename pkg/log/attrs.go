package log

import "log/slog"

func LessonID[T ~string](id T) slog.Attr {
	return slog.String("lesson_id", string(id))
}

func ScreenID[T ~int64](id T) slog.Attr {
	return slog.Int64("screen_id", int64(id))
}

func PathID[T ~string](id T) slog.Attr {
	return slog.String("path_id", string(id))
}

func Pass(name string) slog.Attr {
	return slog.String("pass", name)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
