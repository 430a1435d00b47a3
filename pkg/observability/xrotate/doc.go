// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate），实现并发安全。
// 当前唯一实现 [NewLumberjack] 基于 lumberjack v2 按文件大小轮转，
// 由 xlog.Builder.SetRotation 使用。
package xrotate
