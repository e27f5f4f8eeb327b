package initializers

import (
	"approvals-backend/config"
	"approvals-backend/db"
	"approvals-backend/fiberlog"
	approvaldecisionhandler "approvals-backend/lib/approval-decision"
	approvalevents "approvals-backend/lib/approval-events"
	approvallevelhandler "approvals-backend/lib/approval-level"
	approvaloverdueworker "approvals-backend/lib/approval-overdue"
	approvalqueryhandler "approvals-backend/lib/approval-query"
	approvalroutinghandler "approvals-backend/lib/approval-routing"
	approvalhistorystore "approvals-backend/lib/approval/history-store"
	companyusershandler "approvals-backend/lib/company/users"
	delegationhandler "approvals-backend/lib/delegation"
	xlsexport "approvals-backend/lib/export/xls"
	"approvals-backend/lib/smtp"
	"context"
	"time"
)

var LoggerConfig *fiberlog.Config

// Finalizers receives document types whose owners want to hear about closed workflows.
var Finalizers = approvalevents.NewFinalizerRegistry()

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitSmtp()
	companyusershandler.NewHandler()
	approvallevelhandler.NewHandler()
	delegationhandler.NewHandler()
	approvalqueryhandler.NewHandler()
	xlsexport.NewHandler()

	dispatcher := newDispatcher()
	approvalroutinghandler.NewHandler(dispatcher)
	approvaldecisionhandler.NewHandler(dispatcher)
	go initWorkers(ctx, dispatcher)
}

func newDispatcher() approvalevents.Dispatcher {
	sinks := []approvalevents.Sink{
		approvalevents.NewHistorySink(approvalhistorystore.NewInstance(db.DB)),
	}
	if *config.Conf.Approval.NotifyByEmail {
		sinks = append(sinks, approvalevents.NewMailNotifier(smtp.Instance, companyusershandler.Instance, config.Conf.Smtp.SenderEmail))
	}
	return approvalevents.NewDispatcher(approvalevents.NewMultiSink(sinks...), Finalizers)
}

func initWorkers(ctx context.Context, dispatcher approvalevents.Dispatcher) {
	if *config.Conf.Approval.OverdueReminderEnabled {
		// Задача напоминаний о просроченных согласованиях
		approvaloverdueworker.StartWorker(ctx,
			time.Duration(config.Conf.Approval.OverdueFirstRunSec)*time.Second,
			time.Duration(config.Conf.Approval.OverdueIntervalSec)*time.Second,
			dispatcher)
	}
}
