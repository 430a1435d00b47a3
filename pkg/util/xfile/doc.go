// Package xfile 提供配置文件与日志文件路径的校验和父目录创建。
//
// CheckFilePath 只做格式校验与规范化：拒绝空路径、空字节和以分隔符结尾的
// 目录路径，不限制 ".." 与绝对路径，路径由运维显式给出。
// EnsureParentDir 在写文件前创建缺失的父目录。
package xfile
