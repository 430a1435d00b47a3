// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 配置与日志文件的路径校验、父目录创建
//   - xpool: 固定大小的泛型 worker pool，Future 结果、排空式关闭
//   - xproc: 当前进程标识（PID、进程名），用于日志固定字段
package util
