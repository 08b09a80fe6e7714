package filesystem

var DownloadsDirFor = downloadsDir
