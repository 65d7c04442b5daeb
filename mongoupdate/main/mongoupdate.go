package main

import (
	"os"

	"github.com/mongodb/mongo-update/common/log"
	commonopts "github.com/mongodb/mongo-update/common/options"
	"github.com/mongodb/mongo-update/common/util"
	"github.com/mongodb/mongo-update/mongoupdate"
)

func main() {
	// initialize command-line opts
	opts := commonopts.New("mongoupdate", mongoupdate.Usage)
	updateOpts := &mongoupdate.UpdateOptions{}
	if err := opts.AddOptions(updateOpts); err != nil {
		log.Logvf(log.Always, "error registering command line options: %v", err)
		os.Exit(util.ExitError)
	}

	extra, err := opts.Parse()
	if err != nil {
		log.Logvf(log.Always, "error parsing command line options: %v", err)
		os.Exit(util.ExitBadOptions)
	}

	// print help, if specified
	if opts.PrintHelp(false) {
		return
	}

	// print version, if specified
	if opts.PrintVersion() {
		return
	}

	log.SetVerbosity(opts.Verbosity)

	// pull out the filename; none means stdin
	filename := ""
	if len(extra) > 1 {
		log.Logv(log.Always, "too many positional arguments")
		opts.PrintHelp(true)
		os.Exit(util.ExitBadOptions)
	} else if len(extra) == 1 {
		filename = extra[0]
	}

	updater := &mongoupdate.MongoUpdate{
		ToolOptions:   opts,
		UpdateOptions: updateOpts,
		FileName:      filename,
		In:            os.Stdin,
		Out:           os.Stdout,
	}

	if err := updater.ValidateSettings(); err != nil {
		log.Logv(log.Always, err.Error())
		opts.PrintHelp(true)
		os.Exit(util.ExitBadOptions)
	}

	numFound, err := updater.Run()
	log.Logvf(log.Always, "%v documents processed", numFound)
	if err != nil {
		log.Logv(log.Always, err.Error())
		os.Exit(util.ExitError)
	}
}
